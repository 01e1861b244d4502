package client

import "time"

type Client struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Phone     string    `yaml:"phone"`
	Address   string    `yaml:"address"`
	Email     string    `yaml:"email,omitempty"`
	Notes     string    `yaml:"notes,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}
