// Package access decides whether a role may perform an action, evaluated
// through OPA Rego so deployments can override the built-in policy.
package access

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Actions the dashboard authorizes.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionAdmin  = "admin"
)

const policyPackageQuery = "data.policysonar.access.allow"

// Default Rego policy: any authenticated role reads, analysts and admins
// write, only admins delete or administer.
const defaultRegoPolicy = `package policysonar.access

default allow = false

allow if {
	input.action == "read"
	input.role != ""
}

allow if {
	input.action == "write"
	input.role == "analyst"
}

allow if {
	input.action == "write"
	input.role == "admin"
}

allow if {
	input.action == "delete"
	input.role == "admin"
}

allow if {
	input.action == "admin"
	input.role == "admin"
}
`

// Engine evaluates role/action authorization decisions.
type Engine struct {
	policy string
}

// NewEngine returns an engine running the built-in policy.
func NewEngine() *Engine {
	return &Engine{policy: defaultRegoPolicy}
}

// NewEngineWithPolicy returns an engine running the given Rego source
// instead of the built-in policy.
func NewEngineWithPolicy(policy string) *Engine {
	return &Engine{policy: policy}
}

// HealthCheck verifies the engine can compile and evaluate its policy.
func (e *Engine) HealthCheck(ctx context.Context) error {
	_, err := e.evaluate(ctx, "analyst", ActionRead)
	return err
}

// Allowed reports whether role may perform action. Evaluation failures are
// logged and fall back to a conservative decision: reads stay available,
// everything else is denied.
func (e *Engine) Allowed(ctx context.Context, role, action string) (bool, error) {
	allowed, err := e.evaluate(ctx, role, action)
	if err != nil {
		log.Printf("access: policy evaluation failed: %v, using fallback", err)
		return action == ActionRead && role != "", nil
	}
	return allowed, nil
}

func (e *Engine) evaluate(ctx context.Context, role, action string) (bool, error) {
	compiler, err := ast.CompileModules(map[string]string{"access.rego": e.policy})
	if err != nil {
		return false, fmt.Errorf("compile policy: %w", err)
	}
	q := rego.New(
		rego.Query(policyPackageQuery),
		rego.Compiler(compiler),
		rego.Input(map[string]interface{}{
			"role":   role,
			"action": action,
		}),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy query returned non-boolean %T", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}
