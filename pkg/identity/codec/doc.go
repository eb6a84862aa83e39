/*
Package codec implements the two fixed binary layouts of the RSA identity
script: the Input Record stored in the identity cell data and the Verifier
Request consumed by the external RSA verification routine.

Input Record (little-endian exponent, little-endian modulus):

	+-----------+------------------+-------------------------------------------+
	|  Field    |  Length          |  Comment                                  |
	+-----------+------------------+-------------------------------------------+
	| E         | 4 bytes          | public exponent, uint32 LE                |
	| N         | ModulusLen bytes | public modulus, LE                        |
	| Message   | 32 bytes         | signed payload                            |
	| Signature | ModulusLen bytes | SHA-256 PKCS#1 v1.5 signature             |
	+-----------+------------------+-------------------------------------------+

Verifier Request:

	+---------------+-----+----------------+----------------+
	| common header |  E  |  N (N bytes)   | Signature (N)  |
	+---------------+-----+----------------+----------------+

The common header is {algorithm_id, key_size, padding, md_type}, one byte
each, always [0x01, 0x03, 0x00, 0x06].
*/
package codec
