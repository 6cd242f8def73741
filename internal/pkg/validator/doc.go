// Package validator validates usecase inputs and module dependency structs.
//
// Usecases depend on the Validator interface; V10Validator backs it with
// go-playground/validator and reports failures as a snake_case field map.
package validator
