/*
Package observability provides tools for monitoring the statelab engine.

It includes Prometheus metrics and structured-log auditing, both exposed as
domain.LifecycleHooks, and a helper to combine several hook sets.
*/
package observability
