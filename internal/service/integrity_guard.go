package service

import (
	"fmt"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

// dependentPolicy is what a delete may do with a non-empty relation.
type dependentPolicy int

const (
	policyBlock dependentPolicy = iota
	policyDetach
	policyCascade
)

type dependentRule struct {
	relation models.Relation
	policy   dependentPolicy
	message  string
}

// IntegrityGuard decides whether a person record may be deleted given its dependents.
type IntegrityGuard struct {
	rules map[models.EntityKind][]dependentRule
}

// NewIntegrityGuard builds the guard with the school's dependent rules. Rules are checked in
// order, so the first blocking relation names the violation.
func NewIntegrityGuard() *IntegrityGuard {
	return &IntegrityGuard{rules: map[models.EntityKind][]dependentRule{
		models.EntityTeacher: {
			{relation: models.RelationClasses, policy: policyBlock, message: "Cannot delete teacher who is supervising classes. Please reassign classes first."},
			{relation: models.RelationLessons, policy: policyBlock, message: "Cannot delete teacher who is assigned to lessons. Please reassign or delete these lessons first."},
			{relation: models.RelationSubjects, policy: policyDetach},
		},
		models.EntityStudent: {
			{relation: models.RelationResults, policy: policyCascade},
			{relation: models.RelationAttendances, policy: policyCascade},
		},
		models.EntityParent: {
			{relation: models.RelationStudents, policy: policyBlock, message: "Cannot delete parent with linked students. Please unlink or reassign students first."},
		},
	}}
}

// Plan returns the detach and cascade steps for a delete, or an integrity violation naming the
// first blocking relation.
func (g *IntegrityGuard) Plan(kind models.EntityKind, deps models.Dependents) (models.DeletePlan, error) {
	var plan models.DeletePlan
	for _, rule := range g.rules[kind] {
		if deps[rule.relation] == 0 {
			continue
		}
		switch rule.policy {
		case policyBlock:
			message := rule.message
			if message == "" {
				message = fmt.Sprintf("Cannot delete %s with linked %s.", kind, rule.relation)
			}
			violation := appErrors.Clone(appErrors.ErrIntegrity, message)
			violation.Fields = []appErrors.FieldViolation{{Field: string(rule.relation), Message: message}}
			return models.DeletePlan{}, violation
		case policyDetach:
			plan.Detach = append(plan.Detach, rule.relation)
		case policyCascade:
			plan.Cascade = append(plan.Cascade, rule.relation)
		}
	}
	return plan, nil
}

// For binds the guard to one entity kind for the repository delete callback.
func (g *IntegrityGuard) For(kind models.EntityKind) models.DeleteGuard {
	return func(deps models.Dependents) (models.DeletePlan, error) {
		return g.Plan(kind, deps)
	}
}
