// Package funnel implements the pre-checkout side of the pipeline: the
// attribution session store, the append-only event log, and lead/quiz
// ingestion. Persistence is behind the Repository interface so the business
// rules are testable without Postgres.
package funnel
