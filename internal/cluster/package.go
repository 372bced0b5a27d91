/*
   Package cluster tracks membership of the quorum-network cluster
   and advertises this node's quorum-device vote to the other
   members.

   This package plays the role a cluster manager's client library
   would: tell the daemon how many nodes are currently members,
   whether that count amounts to a quorate cluster, and carry the
   tiebreaker's deciding vote back to the membership layer. We use
   memberlist[1] for it: gossip-based
   membership detects node failure quickly, and each node's metadata
   byte carries its current quorum-device vote so every member sees
   every vote without extra plumbing.

   [1] https://github.com/hashicorp/memberlist

*/

package cluster
