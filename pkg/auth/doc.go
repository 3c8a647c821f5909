// Package auth provides the shared vocabulary for communicating delegated
// access state to tool callers.
//
// Tool results never carry provider error codes; they carry one of the
// statuses defined here plus a human-readable message, so clients can decide
// whether to prompt the user to re-authenticate or to page an operator.
package auth
