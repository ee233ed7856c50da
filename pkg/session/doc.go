/*
Package session serializes access to persisted sessions.

Every mutation runs as a read-modify-write cycle under a per-session lock.
The local lock table is reference counted so idle sessions leave nothing
behind; a ports.DistributedLocker extends the guarantee across replicas
that share a store.
*/
package session
