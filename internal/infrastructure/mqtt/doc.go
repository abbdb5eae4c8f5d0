// Package mqtt publishes campus-core events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and payload validation
//   - Last Will and Testament (LWT) so subscribers see an unexpected exit
//   - Connection health reporting
//
// Authentication events are published non-retained under
//
//	{prefix}/auth/events/{kind}
//
// and service liveness is retained under {prefix}/system/status.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().AuthEvent("login")
//	err = client.Publish(topic, payload, 1, false)
//
// TLS should be enabled outside local development; payloads are only
// protected by the transport.
package mqtt
