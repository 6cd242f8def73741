// Package messaging moves alert events between portal instances.
//
// Business code depends on the Messaging interface only; the driver (an
// in-process bus, NATS, NSQ, Kafka or Google Pub/Sub) is picked from
// configuration at startup. Every driver maps the consumer group to its own
// notion of a competing-consumer set, so giving each instance a distinct
// group turns a topic into a broadcast.
package messaging
