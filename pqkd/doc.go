/*
Package pqkd is a client for pQKD appliances. An appliance exposes two
independent HTTP services: the Key Management Entity (KME) API, which hands out
symmetric keys negotiated with a paired device, and the Quantum Random Number
Generator (QRNG) API.

# Requests

KME operations are built with a RequestBuilder obtained from a Client:

	client, err := pqkd.NewClientBuilder("https://172.16.0.154:8082").
	    WithQrngAddr("https://172.16.0.154:8085").
	    WithTLS(caPEM, certPEM, keyPEM).
	    Build()

	resp, err := client.EncKeys("Test_2SAE").
	    WithKeySize(1024).
	    WithKeyCount(10).
	    Send(ctx)

Parameters are validated as they are added. The first invalid parameter is
remembered and returned by Send (or Finalize) without any request being made.

The partner device redeems the same keys by ID, in the same order:

	resp, err := partner.DecKeys("Test_1SAE").
	    WithKeyIDs(ids...).
	    Send(ctx)

# Concurrency

Send blocks until the response is parsed. SendAsync and FetchRandomAsync run the
same dispatch path on their own goroutine and return a Pending. A Client is
immutable after Build and may be shared; builders are single-use.

There is no retry and no timeout in this package. Cancellation is available
through the context passed to Send.

# Errors

Errors fall into four categories, testable with errors.Is: ErrValidation,
ErrConfiguration, ErrTransport and ErrDeserialization. A non-2xx status is a
*TransportError carrying the status code and body; a 2xx body that does not
match the expected schema is a *DeserializationError.
*/
package pqkd
