// Package domain contains the core business entities, value objects, and
// domain logic of the application: exam questions with their answer options,
// generated multiple-choice questions, and the formatting rules used to
// present questions to the explanation generator. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
