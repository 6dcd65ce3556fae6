// Package order implements the order and access-token lifecycle: idempotent
// payment-webhook processing with exactly-once token minting, order status
// polling, token redemption, and account linking.
//
// There is no in-process locking. Correctness under concurrent webhook
// re-delivery rests on the repository's conditional-write semantics: the
// paid-upsert protects an existing token, and linking is a single
// conditional update that affects 0 or 1 rows.
package order
