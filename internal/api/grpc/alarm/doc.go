// Package alarm implements the gRPC transport for the alarm clock daemon.
//
// The service descriptor is declared by hand over protobuf well-known types,
// so there is no generated code: SetAlarm and GetAlarm carry a Timestamp,
// ClearAlarm and the requests without payload use Empty, and RunCheck answers
// with the fetch result name in a StringValue. The caller identity travels in
// request metadata.
package alarm
