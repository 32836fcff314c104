// Package devsim simulates a Bolt receiver with paired devices behind the
// raw report transport. Tests establish channels over it instead of real
// hardware.
package devsim
