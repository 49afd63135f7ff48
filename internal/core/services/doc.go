// Package services contains the core business logic of Vellum.
// Services implement driving ports and depend only on driven ports,
// keeping retrieval and ingestion logic independent of storage and
// embedding backends.
package services
