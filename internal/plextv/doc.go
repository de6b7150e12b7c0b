// Package plextv is a thin HTTP adapter over the two Plex access-control
// surfaces (shared-server records and home users), the library catalog, and
// the account directory.
//
// It carries no business logic: each method maps to exactly one upstream
// call, enforces the caller-supplied context deadline, and classifies
// failures with the services error markers. Retry and fallback policy belong
// to the access mutator.
//
// Plex answers reads in XML and accepts writes as JSON; the shared-server
// surface is addressed by machine identifier on plex.tv while the catalog
// lives on the server's own address.
package plextv
