// Package live pushes server-side updates to dashboards over websockets.
//
// A Hub holds the connected browsers and fans messages out to them. A
// CostFeed polls an upstream JSON endpoint, keeps the newest snapshot for
// the live-cost widget and broadcasts each fresh reading through the hub.
package live
