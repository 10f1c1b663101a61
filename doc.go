// Package heymac implements the HeyMac link layer for LoRa/SX127x radio
// modems: frame codec and MAC command builder (package frame), radio
// register driver (package sx127x), and the event-driven MAC state
// machine that ties them together (package mac). Gateway and bench
// tools live under cmd.
package heymac
