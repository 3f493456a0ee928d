// Package marketplace contains the Marketplace bounded context.
// This context manages connections to external marketplaces and the product
// listings published through them.
//
// Key concepts:
//   - Adapter: Port interface normalizing heterogeneous marketplace APIs
//     (Amazon, eBay, ...) behind one contract
//   - Connection: A tenant's authenticated link to one marketplace account
//   - Listing: One product's presence on one marketplace connection
//   - Registry: Resolves a connection's marketplace to the matching adapter
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (Amazon, eBay) are in the infrastructure layer
package marketplace
