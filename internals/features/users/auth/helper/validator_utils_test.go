package helper

import "testing"

func TestValidateRegisterInput(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "Juan Dela Cruz", "juan@example.com", "secret123", false},
		{"blank name", "  ", "juan@example.com", "secret123", true},
		{"bad email", "Juan", "not-an-email", "secret123", true},
		{"short password", "Juan", "juan@example.com", "ab1", true},
		{"letters only", "Juan", "juan@example.com", "onlyletters", true},
		{"numbers only", "Juan", "juan@example.com", "12345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegisterInput(tt.fullName, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegisterInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLoginInput(t *testing.T) {
	if err := ValidateLoginInput("juan@example.com", "pw"); err != nil {
		t.Errorf("valid login rejected: %v", err)
	}
	if err := ValidateLoginInput("", "pw"); err == nil {
		t.Error("empty email accepted")
	}
	if err := ValidateLoginInput("juan@example.com", ""); err == nil {
		t.Error("empty password accepted")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("password stored in plain text")
	}
	if err := CheckPasswordHash(hash, "secret123"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPasswordHash(hash, "wrong-password"); err == nil {
		t.Error("wrong password accepted")
	}
}
