// Package acwm provides a client for the local HTTP API of the Intesis
// airconwithme / Mitsubishi Heavy Industries MH-AC-WIFI-1 WiFi module.
//
// The module exposes two endpoints:
//   - POST /api.cgi takes {"command": ..., "data": {...}} and answers with
//     {"success": bool, "data": ..., "error": {"code": n, "message": ...}}
//   - GET /js/data/data.json serves a compressed static descriptor of the unit
//
// Most commands need a session identifier obtained with login. The client
// stores it and writes it into every command that needs it at send time.
//
// # Usage Example
//
//	client := acwm.NewClient("192.168.1.40", 80)
//	client.SetAuth("admin", "admin")
//
//	if _, err := client.Login(ctx, "", ""); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Room temperature, in tenths of a degree
//	value, err := client.GetDataPointValue(ctx, 10)
//	if err != nil {
//	    log.Fatal(acwm.GetShortErrorMessage(err))
//	}
//
//	// Setpoint 22.5°C
//	_, err = client.SetDataPointValue(ctx, 9, 225)
//
// # Session Renewal
//
// The module drops sessions without notice. When a command fails with error
// code 1 and AutoLogin is enabled, the client logs in again with the stored
// credentials and replays the command exactly once with the new session.
// A second failure is returned to the caller as-is.
//
// # Retries
//
// Data point reads and writes are retried on transport and device failures:
// DefaultRetryAttempts attempts in total, DefaultRetryDelay apart. The error
// of the last attempt is returned. Other commands are attempted once.
//
// # Concurrency
//
// A Client is safe for concurrent use. Commands are issued one at a time;
// a re-login and its replay are never interleaved with another command.
package acwm
