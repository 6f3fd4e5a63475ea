// Package mqtt publishes Integra zone states and system info to an MQTT
// broker using the Eclipse paho client.
package mqtt
