// Package bridge serves a heater/cooler accessory over HTTP so home
// automation hosts can drive the unit without speaking its protocol.
//
// # Endpoints
//
//	GET  /api/accessory               information and characteristic list
//	GET  /api/state                   every characteristic, one device request
//	GET  /api/characteristics/{name}  one characteristic
//	PUT  /api/characteristics/{name}  {"value": n}
//	POST /api/identify                flash the unit's LED
//	GET  /ws                          websocket stream of {"name", "value"} changes
//	GET  /metrics                     Prometheus metrics
//
// A poller refreshes all values every PollInterval and pushes the ones that
// changed to websocket subscribers. Newly connected subscribers first receive
// every known value.
package bridge
