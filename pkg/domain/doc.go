// Package domain contains the value types shared across tether: the
// Entity and Tag identities, the Class capability contract, lifecycle
// hooks, and sentinel errors. It has no behavior of its own.
package domain
