/*
Package cash defines a simple wallet ledger.

Each wallet is stored under the owner address and holds the balance of
the single payment token used by all contracts. The Controller is the
only entry point to modify balances, so that invariants (no negative
balance, no overflow) hold everywhere.
*/
package cash
