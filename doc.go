// Package gvpay is a payment service for the Garanti Virtual POS (GVP)
// gateway. It compiles card payment requests into the gateway's wire formats,
// drives direct (server-to-server) and 3D secure flows, and exposes them
// behind a small JSON API.
//
// # Overview
//
// GVP speaks two dialects. Direct sales, preauthorizations, voids and refunds
// travel as an ordered XML document with root GVPSRequest, posted with
// Content-Type application/x-www-form-urlencoded. 3D secure initiations travel
// as a flat form-urlencoded parameter set that redirects the cardholder to the
// bank's 3D engine. Both dialects are authenticated with SHA-1 hash chains
// computed over the terminal credentials and the request fields.
//
// gvpay builds those payloads, computes the hashes, selects the right endpoint
// for the flow and environment, and maps the gateway's responses back into a
// common PaymentResponse.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│     gvpay       │◄──►│  Garanti VPOS   │
//	│                 │    │   (Gateway)     │    │   (GVPSRequest) │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// The provider package holds the common types, registry, service layer and
// logging. The provider/garanti package holds the hash engine, the parameter
// tree builders and the wire serializers. The handler and router packages
// expose the HTTP surface; infra carries config, logging and middleware.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/mstgnz/gvpay/provider"
//	    _ "github.com/mstgnz/gvpay/provider/garanti" // Import to register provider
//	)
//
//	func main() {
//	    p, err := provider.Get("garanti")
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    err = p.Initialize(map[string]string{
//	        "merchantId":  "your-merchant-id",
//	        "terminalId":  "your-terminal-id",
//	        "username":    "PROVAUT",
//	        "password":    "your-password",
//	        "secureKey":   "your-3d-secure-key",
//	        "environment": "sandbox", // or "production"
//	    })
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    resp, err := p.CreatePayment(context.Background(), provider.PaymentRequest{
//	        OrderID:  "ORDER-1001",
//	        Amount:   10050, // 100.50 TRY in kuruş
//	        Currency: "TRY",
//	        CardInfo: provider.CardInfo{
//	            CardNumber:  "4242424242424242",
//	            ExpireMonth: "12",
//	            ExpireYear:  "2030",
//	            CVV:         "123",
//	        },
//	    })
//	    _ = resp
//	    _ = err
//	}
//
// # Amounts
//
// Amounts are integers in minor currency units (kuruş, cents) everywhere.
// The gateway's 3D flow displays a decimal amount; gvpay derives that string
// from the integer, the integer stays the value that is hashed.
//
// # Running the service
//
// cmd/main.go wires the HTTP service: SQLite for tenant configuration and
// payment logs, optional OpenSearch for request indexing, chi for routing.
// Provider credentials come from per-tenant configuration stored through the
// /v1/config endpoints or bootstrapped from GARANTI_* environment variables.
package gvpay
