/*
Package pledge defines the basic types shared by all extensions of the
collateralized contract engine.

The root package holds no business logic. It declares the identity types
(Address, Condition), the millisecond timestamp type used by all financial
calculations, the key-value storage interfaces every extension is written
against, and the Persistent contract that all stored models fulfill.

The engine itself lives in x/credit and is composed from the extensions in
x/cash (the payment token ledger) and x/assets (the collateral registry).
*/
package pledge
