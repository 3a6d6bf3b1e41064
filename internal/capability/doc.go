// Package capability resolves what an authenticated console session may do.
//
// This package implements:
//   - The capability predicate (admin bypass, ALL wildcard, exact tag match)
//   - The explicit role hierarchy loaded from roles.yaml
//   - The navigation filter over the declarative panel table in panels.yaml
//   - Per-control action gates and the per-entity in-flight tracker
//
// Every gating decision in the console routes through a Resolver so that
// route guards, menus and row actions agree on the same rules.
package capability
