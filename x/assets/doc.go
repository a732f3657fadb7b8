/*
Package assets keeps a registry of the non fungible tokens that serve
as contract collateral.

Each token has exactly one owner. The owner may grant a transfer
approval to one other address. Any approval is wiped on transfer, so a
new owner always starts with a clean token.
*/
package assets
