/*
Package credit implements collateralized time value contracts.

A contract binds a non fungible collateral token to a fungible payment
stream. Two kinds exist. In a loan the borrower posts collateral and an
investor funds the principal, which the borrower later repays with
interest to reclaim the collateral. In a lease the investor posts the
collateral and a renter pays rent per day for its use.

Every contract walks the same state graph:

	Available -> Matched -> Settled
	                     -> Defaulted
	Available -> Cancelled

Settled, Defaulted and Cancelled are terminal. While a contract is
Available or Matched its collateral is held by a per contract escrow
condition, so no party can move it behind the engine's back.

All interest and rent math is integer only and day quantized. The exact
truncation points of the interest series are part of the persisted
ledger format and must never change.
*/
package credit
