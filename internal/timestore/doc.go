// Package timestore owns the single PendingAlarm.
//
// The alarm is kept under the "alarmTime" key as a decimal string of epoch
// milliseconds. Every operation runs under one critical section, and ClearIf
// only removes the alarm that was actually fired.
package timestore
