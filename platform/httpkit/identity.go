// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated employee's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access principal information without depending on Gin.
type Identity interface {
	// EmployeeID returns the authenticated employee's ID.
	EmployeeID() uuid.UUID
	// Role returns the employee's normalized role.
	Role() string
	// Department returns the employee's department.
	Department() string
	// IsAuthenticated returns true if the principal is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	employeeID    uuid.UUID
	role          string
	department    string
	authenticated bool
}

func (i *identity) EmployeeID() uuid.UUID { return i.employeeID }
func (i *identity) Role() string          { return i.role }
func (i *identity) Department() string    { return i.department }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if principal info is not present.
func GetIdentity(c *gin.Context) Identity {
	employeeID, idOK := c.Get(ContextEmployeeIDKey)
	if !idOK {
		return &identity{authenticated: false}
	}

	eid, ok := employeeID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	role, _ := c.Get(ContextRoleKey)
	department, _ := c.Get(ContextDepartmentKey)

	roleStr, _ := role.(string)
	departmentStr, _ := department.(string)

	return &identity{
		employeeID:    eid,
		role:          roleStr,
		department:    departmentStr,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the principal is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
