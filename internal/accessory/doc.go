// Package accessory maps Integra zones onto contact and motion sensors.
//
// A violated contact zone reads as open, a violated motion zone as motion
// detected. Each zone gets a stable UUID derived from its number.
package accessory
