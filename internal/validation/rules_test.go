package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Pass123!", true},
		{"a1@", true}, // length is not this rule's concern
		{"Password123", false},
		{"password!", false},
		{"12345678!", false},
		{"Pass 123!", false},
		{"Pass123!^", false},
		{"Pässword1!", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidPassword(tt.in); got != tt.want {
			t.Errorf("ValidPassword(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestRegister_PasswordTag(t *testing.T) {
	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("Register: %v", err)
	}

	type form struct {
		Password string `validate:"required,min=8,max=72,password"`
	}

	if err := v.Struct(form{Password: "Pass123!"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := v.Struct(form{Password: "Password"})
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) != 1 || verrs[0].Tag() != PasswordTag {
		t.Fatalf("expected password tag failure, got %v", err)
	}

	err = v.Struct(form{Password: strings.Repeat("a", 70) + "1!!"})
	verrs, ok = err.(validator.ValidationErrors)
	if !ok || verrs[0].Tag() != "max" {
		t.Fatalf("expected max failure, got %v", err)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		field, rule string
		want        string
		ok          bool
	}{
		{"email", "required", MsgInvalidEmail, true},
		{"email", "email", MsgInvalidEmail, true},
		{"name", "min", MsgNameTooShort, true},
		{"password", "min", MsgPasswordTooShort, true},
		{"password", "password", MsgPasswordRules, true},
		{"password", "required", MsgPasswordRequired, true},
		{"capacity", "min", "", false},
	}

	for _, tt := range tests {
		got, ok := Message(tt.field, tt.rule)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Message(%q,%q)=(%q,%v) want (%q,%v)", tt.field, tt.rule, got, ok, tt.want, tt.ok)
		}
	}
}
