// Package models holds the GORM rows behind the lifecycle aggregates. Domain
// types carry no tags; each model converts to and from its aggregate.
//
// Every lifecycle row (request, order, invoice, transition) stores its owning
// agency so datascope filters can isolate agencies with a single indexed
// column. Money columns are fixed-point decimals and never floats.
package models
