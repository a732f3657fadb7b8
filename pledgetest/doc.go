// Package pledgetest provides mocks and helpers for testing code that is
// using the engine interfaces.
package pledgetest
