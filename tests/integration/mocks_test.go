//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maltroom/cellarman/internal/identity"
)

// fakeVerifier implements identity.TokenVerifier with deterministic
// credentials so tests never talk to the real identity provider.
//
// Accepted tokens look like "idtoken:<email>:<name>"; accepted codes look
// like "code:<email>:<name>" and exchange into the matching token.
type fakeVerifier struct{}

var errFakeBadCredential = errors.New("credential not recognized")

func (f *fakeVerifier) Verify(_ context.Context, rawToken string) (*identity.TokenClaims, error) {
	parts := strings.SplitN(rawToken, ":", 3)
	if len(parts) != 3 || parts[0] != "idtoken" || parts[1] == "" {
		return nil, errFakeBadCredential
	}
	return &identity.TokenClaims{Email: parts[1], Name: parts[2]}, nil
}

func (f *fakeVerifier) Exchange(_ context.Context, code string) (string, error) {
	rest, ok := strings.CutPrefix(code, "code:")
	if !ok {
		return "", errFakeBadCredential
	}
	return "idtoken:" + rest, nil
}

// testToken builds a token the fake verifier accepts.
func testToken(email, name string) string {
	return fmt.Sprintf("idtoken:%s:%s", email, name)
}

// testCode builds an authorization code the fake verifier exchanges.
func testCode(email, name string) string {
	return fmt.Sprintf("code:%s:%s", email, name)
}
