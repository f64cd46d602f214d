// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package router wires HTTP routes to their handlers. Admin routes are
// wrapped with the admin-key check; public routes only get request
// logging. Uses Go 1.22+ method-and-pattern routing on ServeMux.
package router
