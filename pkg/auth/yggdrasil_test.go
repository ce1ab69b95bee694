package auth

import (
	"errors"
	"testing"
)

func TestClassifyYggdrasilErrorInvalidCredentials(t *testing.T) {
	err := classifyYggdrasilError(yggdrasilError{Error: "ForbiddenOperationException", ErrorMessage: "Invalid credentials."})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("classifyYggdrasilError = %v, want ErrPermanent", err)
	}
	if errors.Is(err, ErrNeedsTwoFactor) {
		t.Fatalf("classifyYggdrasilError = %v, want not ErrNeedsTwoFactor", err)
	}
}

func TestClassifyYggdrasilErrorNeedsTwoFactor(t *testing.T) {
	err := classifyYggdrasilError(yggdrasilError{Error: "ForbiddenOperationException", ErrorMessage: "Account protected with two factor auth."})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("classifyYggdrasilError = %v, want ErrPermanent", err)
	}
	if !errors.Is(err, ErrNeedsTwoFactor) {
		t.Fatalf("classifyYggdrasilError = %v, want ErrNeedsTwoFactor", err)
	}
}

func TestClassifyYggdrasilErrorOtherError(t *testing.T) {
	err := classifyYggdrasilError(yggdrasilError{Error: "IllegalArgumentException", ErrorMessage: "credentials missing"})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("classifyYggdrasilError = %v, want ErrPermanent", err)
	}
	if errors.Is(err, ErrNeedsTwoFactor) {
		t.Fatalf("classifyYggdrasilError = %v, want not ErrNeedsTwoFactor", err)
	}
}

func TestClassifyYggdrasilErrorEmpty(t *testing.T) {
	err := classifyYggdrasilError(yggdrasilError{})
	if !errors.Is(err, ErrPermanent) {
		t.Fatalf("classifyYggdrasilError = %v, want ErrPermanent", err)
	}
}
