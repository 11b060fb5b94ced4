// Package validation checks user-supplied fields before they reach services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	MaxDisplayNameLength = 40
	MaxCardTitleLength   = 100
	MaxGoalTextLength    = 200
	MinPasswordLength    = 8
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// ValidateName checks a display name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxDisplayNameLength)}
	}
	return nil
}

// ValidateCardTitle checks a card title; it may not be blank
func ValidateCardTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxCardTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", MaxCardTitleLength)}
	}
	return nil
}

// ValidateGoalText checks the text of a goal. Empty clears the goal.
func ValidateGoalText(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) > MaxGoalTextLength {
		return ValidationError{Field: "goal_text", Message: fmt.Sprintf("goal must be at most %d characters", MaxGoalTextLength)}
	}
	return nil
}

// ValidateDifficulty checks a goal difficulty on the 1 to 5 scale
func ValidateDifficulty(difficulty int) error {
	if difficulty < 1 || difficulty > 5 {
		return ValidationError{Field: "difficulty", Message: "difficulty must be between 1 and 5"}
	}
	return nil
}
