package infra

import "github.com/casbin/casbin/v2"

// NewEnforcer builds an enforcer from the RBAC model file. Policies are
// loaded at runtime from the role and permission tables, not from a policy
// file.
func NewEnforcer(modelPath string) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(modelPath)
}
