/*
Package errors implements custom error interfaces for the engine.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when an error code must be exposed to a client. A
new error instance is created using the Register function. Each error is
registered with a unique code. Error codes are returned to callers and must
stay stable between releases.

Use Wrap and Wrapf to add context to an error without changing which
registered root it matches.
*/
package errors
