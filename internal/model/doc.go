// Package model defines the client-side domain types shared by the
// coordinator components: resource instances, attachment points, image
// descriptors and user build records.
//
// Wire formats live in package api; the types here carry no JSON tags and
// use tagged enums where the server uses ad hoc booleans or numeric codes.
package model
