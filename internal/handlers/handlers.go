package handlers

import (
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
)

// Package-level collaborators, wired once from main. The broadcaster is
// injected rather than reached through a socket global so the submit flow
// can be exercised with a recording double.
var (
	Submissions *services.SubmissionService
	Finalizer   *services.Finalizer
)

// Init wires the handler layer to its services.
func Init(submissions *services.SubmissionService, finalizer *services.Finalizer) {
	Submissions = submissions
	Finalizer = finalizer
}
