// Package api is the REST bridge over the full-text routine surface.
//
// Every routine of the catalog, maintenance, search and statistics
// surface is reachable as a JSON endpoint under /api/v1, with the same
// uniform response envelope, CORS, optional API-key auth and per-routine
// rate limiting.
package api
