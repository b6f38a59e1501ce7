// Package agents provides types, repository, and service for AI agent
// personas. An agent is a named persona with instructions, owned by the user
// who created it.
package agents

import "time"

// Agent represents an AI persona with instructions.
type Agent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput is the input for creating an agent.
type CreateInput struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// UpdateInput is the input for updating an agent's mutable fields.
type UpdateInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}
