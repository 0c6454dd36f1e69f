package utils

import (
	"github.com/gorilla/mux"
	"github.com/sethvargo/go-password/password"
)

// NewRouter constructs the application router.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.StrictSlash(true)
	return r
}

// GeneratePIN returns a random 6-digit access PIN.
func GeneratePIN() (string, error) {
	return password.Generate(6, 6, 0, false, true)
}
