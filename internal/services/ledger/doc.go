// Package ledger owns the append-only transaction log and is the only writer
// of a user's wallet balance.
//
// Every posting locks the user row, snapshots the balance before and after,
// writes the new balance under a version guard and inserts the ledger row, all
// on the caller's database transaction when one is supplied. Pending debits are
// holds that are already reflected in the balance; pending credits are not
// applied until Settle.
package ledger
