package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMethodRequired indicates a definition without a method name.
	ErrMethodRequired = errors.New("command method is required")
	// ErrMethodUnknown indicates a method with no registered definition.
	ErrMethodUnknown = errors.New("command method is not registered")
	// ErrSenderRequired indicates a command without a sender identity.
	ErrSenderRequired = errors.New("command sender is required")
	// ErrPayloadInvalid indicates a payload that is not a JSON object.
	ErrPayloadInvalid = errors.New("payload must be a json object")
)

// Method identifies the requested marketplace operation.
type Method string

// Command captures one decoded host input.
type Command struct {
	Method     Method
	Sender     string
	RequestID  string
	InputIndex uint64
	// PayloadJSON is the full command object, method field included.
	PayloadJSON []byte
}

// PayloadValidator checks the method-specific fields of a payload.
type PayloadValidator func(json.RawMessage) error

// Definition registers one method.
type Definition struct {
	Method          Method
	ValidatePayload PayloadValidator
}

// Registry stores method definitions.
type Registry struct {
	definitions map[Method]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Method]Definition)}
}

// Register adds a method definition.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Method = Method(strings.TrimSpace(string(def.Method)))
	if def.Method == "" {
		return ErrMethodRequired
	}
	if r.definitions == nil {
		r.definitions = make(map[Method]Definition)
	}
	if _, exists := r.definitions[def.Method]; exists {
		return fmt.Errorf("command method already registered: %s", def.Method)
	}
	r.definitions[def.Method] = def
	return nil
}

// Definition returns the definition registered for method.
func (r *Registry) Definition(method Method) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[method]
	return def, ok
}

// Methods returns registered methods in sorted order.
func (r *Registry) Methods() []Method {
	if r == nil {
		return nil
	}
	methods := make([]Method, 0, len(r.definitions))
	for method := range r.definitions {
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// ValidateForDecision checks a command for a registered method before it is
// handed to a decider. Method names are matched exactly; the host payload is
// case-sensitive.
func (r *Registry) ValidateForDecision(cmd Command) (Command, error) {
	def, ok := r.Definition(cmd.Method)
	if !ok {
		return Command{}, ErrMethodUnknown
	}
	cmd.Sender = strings.TrimSpace(cmd.Sender)
	if cmd.Sender == "" {
		return Command{}, ErrSenderRequired
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(cmd.PayloadJSON); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}
