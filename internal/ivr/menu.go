package ivr

import "time"

// Menu is a tenant-scoped, versioned voice menu definition.
//
// Invariant: at most one menu per tenant has Active = true. Activation is an
// administrative operation; the call router only reads menus.
type Menu struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Version  int    `json:"version" db:"version"`

	WelcomeMessage string `json:"welcome_message" db:"welcome_message"`
	Language       string `json:"language" db:"language"`

	Options []MenuOption `json:"options"`

	// MaxAttempts bounds menu replays for one call; the counter lives on the
	// call record because consecutive webhooks may hit different instances.
	MaxAttempts     int `json:"max_attempts" db:"max_attempts"`
	InputTimeoutSec int `json:"input_timeout_sec" db:"input_timeout_sec"`

	Active bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MenuOption maps a single keypad digit to a target queue.
type MenuOption struct {
	Digit       string `json:"digit" db:"digit"`
	Description string `json:"description" db:"description"`
	QueueName   string `json:"queue_name" db:"queue_name"`
}

// OptionForDigit resolves a pressed digit against the menu.
func (m Menu) OptionForDigit(digit string) (MenuOption, bool) {
	for _, o := range m.Options {
		if o.Digit == digit {
			return o, true
		}
	}
	return MenuOption{}, false
}

// DefaultMenu is the hardcoded fallback played when a tenant has no active
// menu configured, so the system degrades instead of failing on missing
// configuration.
func DefaultMenu(tenantID string) Menu {
	return Menu{
		ID:             "default",
		TenantID:       tenantID,
		Version:        1,
		WelcomeMessage: "Welcome. For sales, press 1. For support, press 2. For human resources, press 3.",
		Language:       "en-US",
		Options: []MenuOption{
			{Digit: "1", Description: "Sales", QueueName: "sales"},
			{Digit: "2", Description: "Support", QueueName: "support"},
			{Digit: "3", Description: "Human Resources", QueueName: "hr"},
		},
		MaxAttempts:     3,
		InputTimeoutSec: 10,
		Active:          true,
	}
}
