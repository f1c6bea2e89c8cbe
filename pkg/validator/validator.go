package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const (
	RoomNameMin    = 3
	RoomNameMax    = 30
	RoomDescMax    = 200
	MessageMax     = 500
	passwordMinLen = 8
)

func ValidateRegister(email, username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _ and -")
	}

	if len(password) < passwordMinLen {
		errs.Add("password", "Password must be at least 8 characters")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateRoom(name, description string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "A room must have a name")
	} else if len(name) < RoomNameMin {
		errs.Add("name", "Room name must be at least 3 characters long")
	} else if len(name) > RoomNameMax {
		errs.Add("name", "Room name cannot exceed 30 characters")
	}

	if len(strings.TrimSpace(description)) > RoomDescMax {
		errs.Add("description", "Room description cannot exceed 200 characters")
	}

	return errs
}

// ValidateMessageContent trims content and reports whether the result is a
// legal message body (non-empty, at most 500 characters).
func ValidateMessageContent(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > MessageMax {
		return content, false
	}
	return content, true
}
