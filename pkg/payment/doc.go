// Package payment abstracts the payment provider used at checkout.
package payment
