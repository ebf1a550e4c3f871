/*
Package ledger is the single writer for wallet balances.

Every balance change goes through Reserve (debit) or Release (credit), each of
which appends an immutable ledger entry and updates the wallet balance in one
database transaction while the wallet row is locked. Nothing outside this
package mutates a balance, so two invariants hold at every committed state:

  - a wallet balance is never negative
  - the signed sum of a wallet's ledger entries equals its balance

Reserve and Release open their own transaction when called directly; inside an
enclosing unit of work, construct the service over the transaction-bound
repository so the ledger writes commit or roll back with the caller's work.
*/
package ledger
